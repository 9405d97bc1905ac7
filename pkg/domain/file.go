package domain

import "time"

// PackedExtension is the fixed extension of every packed update file.
const PackedExtension = ".eupdz"

// UpdateFile is one logical asset belonging to a published Version: a
// zlib-deflated, CRC-32-fingerprinted, opaquely-named blob plus the logical
// path clients use to place it back on disk.
type UpdateFile struct {
	VersionID  ID        `bson:"version_id"`
	Category   Category  `bson:"category"`
	FileName   string    `bson:"file_name"`
	Extension  string    `bson:"extension"`
	LocalPath  string    `bson:"local_path"`
	PackedSize int64     `bson:"packed_size"`
	FileSize   int64     `bson:"file_size"`
	CRC32      string    `bson:"crc32"`
	CreatedAt  time.Time `bson:"created_at"`
}

// Server is a published update server endpoint advertised to clients.
type Server struct {
	ServerID  ID        `bson:"_id"`
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"created_at"`
}
