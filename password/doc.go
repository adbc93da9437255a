// Package password hashes and verifies passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2] satisfies the engine's PasswordVerifier. Verification reads the
// cost parameters from the stored hash, so hashes made with older settings
// keep verifying; [Argon2.NeedsUpgrade] reports when one should be re-hashed.
//
// The package never stores passwords and never logs plaintext or parameters.
package password
