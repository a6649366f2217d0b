/*
Package upload coordinates an upload session: it plans the selected files
into units, transfers the units strictly one after another and reports
progress and a terminal outcome to the caller.

A session transfers either in batches, where each unit is one multipart
request to the bulk ingestion endpoint, or directly, where each unit is a
single file written to object storage with a short-lived grant:

	client, _ := httpclient.New("http://localhost:8080/api")
	session, err := upload.New("Holiday", files, schema.DefaultMaxBatchBytes,
		upload.WithTransport(client),
		upload.WithProgress(func(p schema.UploadProgress) {
			fmt.Println(p.Overall)
		}),
	)
	if err != nil {
		return err
	}
	outcome, err := session.Run(ctx)

Failures never stop Run early with an error. They are collected into the
outcome, one record per file, with a kind the caller can branch on.
*/
package upload
