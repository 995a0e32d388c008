/*
Package authsdk is a Go client for the turnstile authentication service.

It wraps the three API routes and the health probes:

	client := authsdk.NewClient("http://localhost:3000")

	// Create a credential; a taken e-mail yields ErrDuplicateIdentity.
	err := client.Register(ctx, "alice@example.com", "hunter2")

	// Exchange the credential for a signed access token.
	token, err := client.Login(ctx, "alice@example.com", "hunter2")
	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong e-mail or password
	}

	// Ask the service whether a token is still good.
	status, err := client.ValidateToken(ctx, token)
	if err == nil && status.Valid {
		fmt.Println("token belongs to", status.UserEmail)
	}

The request and response types are shared with the server so both sides agree
on the wire format. Server errors decode into *APIError, which compares equal
under errors.Is to the predefined values in this package.
*/
package authsdk
