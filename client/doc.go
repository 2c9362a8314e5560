// Package client provides the core implementation of the cloud storage
// API client built on [net/http].
//
// # Establishing a Session
//
// Use [New] to create a [Session] with functional options:
//
//	sess, err := client.New("https://api.example.com/2.0",
//		client.WithAccessToken(token),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithRetry(5),
//	)
//
// # Making Requests
//
// Build a [Request] against a session endpoint, then send it:
//
//	req := sess.NewRequest(http.MethodGet, sess.Endpoint("/files/123", nil))
//	resp, err := req.Send(ctx)
//	defer resp.Disconnect()
//	err = resp.Decode(&fileInfo)
//
// # Uploading Files
//
// [Session.NewUpload] builds a multipart/form-data request that streams
// the file content without buffering it in memory:
//
//	up := sess.NewUpload(sess.Endpoint("/files/content", nil), client.PartSpec{PartName: "file"})
//	up.SetFile(f, "report.pdf")
//	up.PutField("parent_id", "0")
//	resp, err := up.Send(ctx)
//
// # Downloading Files
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	req := sess.NewRequest(http.MethodGet, sess.Endpoint("/files/123/content", nil))
//	err = sess.Download(ctx, req, "/tmp/file.bin",
//		download.WithChecksum(sha256.New(), expectedHex),
//		download.WithProgress(),
//	)
//
// For lower-level control see the
// [github.com/stratusdrive/stratus-go/client/download] package.
package client
