// Command pinctl runs one pinning operation and prints the result as JSON.
//
// It either builds an aggregation from --backend connection strings in process
// or, with --server, drives a running pinning-server over its HTTP API.
//
//	pinctl --ipfs-api=http://127.0.0.1:5001 --backend=ipfs://__context pin QmSnuWmxptJZdLJpKRarxBMS2Ju2oANVrgbr2xWbie9b2D
//	pinctl --server=http://127.0.0.1:8080 ls
//	pinctl --server=http://127.0.0.1:8080 info
package main
