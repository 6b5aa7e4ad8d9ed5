// Package tracker provides a client for the Yandex Tracker REST API.
//
// Every call goes through the same pipeline: arguments are normalized into
// a wire-ready JSON body, sent over a shared connection pool, checked for an
// error status and decoded into typed domain objects. Decoded objects keep a
// reference to the client that produced them, so follow-up calls such as
// issue.GetComments(ctx) need no client argument.
//
// # Usage
//
//	client, err := tracker.NewClient("12345", os.Getenv("TRACKER_TOKEN"),
//		tracker.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	issue, err := client.GetIssue(ctx, "TEST-1", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	transitions, err := issue.GetTransitions(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if tr, ok := transitions.Get("close"); ok {
//		_, err = tr.Execute(ctx, tracker.Fields{"resolution": "fixed"})
//	}
//
// # Custom types
//
// Queues often carry local fields. Declare a type embedding the base object
// and use the generic variant of a call:
//
//	type Ticket struct {
//		tracker.FullIssue
//		CustomerID string `json:"61f2e5d1--customerId,omitempty"`
//	}
//
//	ticket, err := tracker.CreateIssueAs[Ticket](ctx, client, tracker.CreateIssueParams{
//		Summary: "Broken login",
//		Queue:   "SUPPORT",
//		Extra:   tracker.Fields{"customer_id": "c-42"},
//	})
//
// Extra keys are matched against the fields of the custom type by Go name or
// wire name and sent under the wire name it declares. Keys the type does not
// declare are dropped.
//
// A field is required when its json tag has no omitempty. Decoding a
// response without a required field fails with a *DecodeError.
//
// # Error Handling
//
// Unsuccessful responses are returned as *APIError and match the sentinels
// ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict and ErrGeneric
// with errors.Is. Only generic errors carry the response body.
//
// The client does not retry, paginate or rate limit.
package tracker
