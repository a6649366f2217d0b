package aws

import (
	"errors"
	"net/http"

	// Packages
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Err transforms an SDK error into an httpresponse error with the same
// status code.
func Err(err error) error {
	if err == nil {
		return nil
	}
	var awserr *awshttp.ResponseError
	if errors.As(err, &awserr) {
		return httpresponse.Err(awserr.HTTPStatusCode()).With(awserr.Error())
	}
	return err
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isNotFound(err error) bool {
	var awserr *awshttp.ResponseError
	return errors.As(err, &awserr) && awserr.HTTPStatusCode() == http.StatusNotFound
}
