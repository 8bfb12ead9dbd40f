// Package testutil provides internal helpers for JWT server authentication tests.
//
// It generates RSA key pairs, encodes them as PEM the way Box app configuration
// files carry them, and parses signed assertions back into claims.
package testutil
