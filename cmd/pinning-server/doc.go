// Command pinning-server serves a pinning aggregation over HTTP.
//
// Backends are given as connection strings, either repeated --backend flags or
// the comma separated PINNING_BACKENDS environment variable. All backends are
// opened before the API starts listening and closed after it has shut down.
//
// Example:
//
//	pinning-server --ipfs-api=http://127.0.0.1:5001 \
//	    --backend=ipfs://__context \
//	    --backend=ipfs+https://pinning.example.com \
//	    --backend='s3://archive-bucket/pins?region=eu-west-1' \
//	    --listen-addr=0.0.0.0:8080
package main
