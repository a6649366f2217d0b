// Package httpclient provides a typed Go client for the gallery upload
// collaborators: the bulk ingestion endpoint, the write authorization
// issuer, object registration and folder listing.
//
// Create a client with:
//
//	client, err := httpclient.New("http://localhost:8080/api")
//	if err != nil {
//	   panic(err)
//	}
//
// Then upload a batch of files to a folder:
//
//	response, err := client.UploadBatch(ctx, "holiday", batch, nil)
package httpclient
