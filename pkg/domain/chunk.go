package domain

// UploadChunk is a fixed-size slice of an Upload's assembled file at a
// specific offset, scoped to one concurrent epoch.
type UploadChunk struct {
	UploadID     ID    `bson:"upload_id"`
	ConcurrentID ID    `bson:"concurrent_id"`
	Offset       int64 `bson:"offset"`
	Length       int64 `bson:"length"`
}
