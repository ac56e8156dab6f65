/*
Package pawsdk provides a client for the pawlog pet-wellness REST API.

# Overview

A Client sends JSON requests with a bearer token taken from a TokenStore,
and exposes typed helpers for pets and their per-pet logs (feeding, water,
vaccines, medications, calendar events, symptoms and weight).

	tokens := tokenstore.New(kvstore.NewMemory())
	client := pawsdk.NewClient("https://api.example.com", tokens, logger)

	if _, err := client.Login(ctx, "me@example.com", "secret"); err != nil {
		return err
	}

	pets, err := client.ListPets(ctx)

# Retries and Timeouts

Every attempt is bounded by Client.Timeout (60s by default). Failures are
classified into three kinds:

  - NetworkError: no response was received. Retried up to MaxRetries
    times, waiting RetryDelays[i] before retry i (2s, then 5s).
  - TimeoutError: the attempt hit its deadline. Never retried.
  - HTTPError: the server answered with a non-2xx status. Never retried.
    Message carries the body's "detail" field.

Use KindOf to inspect a returned error:

	_, err := client.GetPet(ctx, 7)
	switch pawsdk.KindOf(err) {
	case pawsdk.KindHTTP:
		fmt.Println("server said:", err)
	case pawsdk.KindNetwork, pawsdk.KindTimeout:
		fmt.Println("offline")
	}

A 204 response yields a Response whose NoContent method returns true.

# Token Refresh

Access tokens that are JWTs expiring within 30 seconds are refreshed before
the request is sent. A 401 on any non-auth path triggers one refresh and a
single replay. When the refresh itself is rejected with 401 the stored
tokens are cleared.

# Offline Fallback

When Client.Cache is set, GET helpers go through offline.FetchWithCache:
the live request always runs first, and the cached copy is used only if it
fails. Mutations invalidate the list they change.

# Thread Safety

A Client is safe for concurrent use. Refreshes are serialised so concurrent
401s lead to a single /auth/refresh call.
*/
package pawsdk
