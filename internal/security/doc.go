// Package security derives a configuration posture report: what is enforced
// and which settings fall short of recommended values.
//
// It performs no I/O and never rejects a configuration; Config.Validate does
// that. The report is advisory output for operators.
package security
