// Package liege provides a client for the Open Data Platform of Liège.
//
// The platform publishes municipal datasets through an OpenDataSoft records API.
// This package queries two of them and maps the loosely typed JSON records into
// value types:
//
//   - Garages: off-street parking garages (dataset parkings-voitures-hors-voirie)
//   - DisabledParkings: parking spots reserved for disabled people (dataset stationnement-pmr)
//
// # Usage
//
//	client, err := liege.NewClient(liege.WithRequestTimeout(5 * time.Second))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	garages, err := client.Garages(ctx, 12)
//
// Or scoped, closing the client on every exit path:
//
//	err := liege.Run(ctx, func(ctx context.Context, c *liege.Client) error {
//		spots, err := c.DisabledParkings(ctx, 5)
//		...
//	})
//
// # Sessions
//
// Without WithHTTPClient the client creates its own *http.Client on the first
// request and releases it on Close. A client passed through WithHTTPClient is
// borrowed: Close leaves it untouched.
//
// # Error Handling
//
// Every query issues exactly one request and either returns all records or fails:
//
//   - ConnectionError: timeout, transport failure or non-success status.
//     IsTimeout tells a fired deadline apart from other failures.
//   - DataError: unexpected content type, undecodable body or a record that does
//     not map (missing geometry, malformed date, ...). It carries the declared
//     content type, the raw body or the offending field.
//
// Both match their sentinels with errors.Is:
//
//	if errors.Is(err, liege.ErrConnection) {
//		// retry later
//	}
package liege
