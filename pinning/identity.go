package pinning

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const aggregationDesignator = "pinning-aggregation"

// BackendID derives a backend id from its designator and connection string:
// <designator>@base64url(sha256(connectionString)).
func BackendID(designator, connectionString string) string {
	return hashID(designator, connectionString)
}

// AggregationID derives an aggregation id from the ordered ids of its backends.
func AggregationID(backendIDs []string) string {
	return hashID(aggregationDesignator, strings.Join(backendIDs, "\n"))
}

func hashID(prefix, payload string) string {
	digest := sha256.Sum256([]byte(payload))
	return prefix + "@" + base64.URLEncoding.EncodeToString(digest[:])
}
