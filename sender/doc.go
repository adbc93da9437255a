// Package sender holds the delivery backends for one-time verification codes.
//
// Each backend implements [authgate.CodeSender]. [FromConfig] picks one by
// kind so deployments choose delivery without code changes:
//
//	"log"      writes the code to a logr.Logger (development only)
//	"webhook"  POSTs {"channel","address","code"} as JSON to a URL
//
// Backends never retry; a delivery error is returned to the engine, which
// drops the stored code.
package sender
