// Package auth stores and resolves the OAuth 1.0a secrets of Twitter
// accounts.
//
// A Manager searches, in order, the system keyring, an AES-GCM encrypted
// file in the config directory, TWEETSWEEP_* environment variables and a
// legacy credentials.txt INI file. Resolve puts explicit configuration in
// front of all of them.
package auth
