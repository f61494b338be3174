// Package cli implements authctl, the command-line client of the authkeeper
// service.
//
// Every invocation runs one subcommand:
//
//	register       create an account (prompts for missing fields)
//	confirm        confirm an email address with the mailed code
//	resend         mail a fresh confirmation code
//	login          authenticate and store the session token
//	logout         forget the stored session token
//	me             show the logged in account
//	passwd         change the password of the logged in account
//	reset-request  mail a password reset link
//	reset          set a new password with a reset token
//	assign-role    grant a role to a user (administrators only)
//	ping           check that the server is reachable
//
// Passwords are always read from the terminal without echo. The session
// token is kept in the file named by the client configuration.
package cli
