package handler

const (
	jsonKeyError   = "error"
	jsonKeyBucket  = "bucket"
	jsonKeyBuckets = "buckets"
	jsonKeyFiles   = "files"
	jsonKeyName    = "name"
	jsonKeyOK      = "ok"

	formFieldFile   = "file"
	formFieldBucket = "bucket"
	queryBucket     = "bucket"

	msgUnexpectedError     = "Unexpected error"
	msgBucketAlreadyExists = "Bucket already exists"
)
