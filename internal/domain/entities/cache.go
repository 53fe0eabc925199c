package entities

// CacheEntry is a downloaded archive together with its extracted directory
type CacheEntry struct {
	Version     ToolVersion
	ArchivePath string
	ExtractDir  string
	Root        string // absolute path of the extracted installation root
	Hit         bool   // archive was already present, nothing was downloaded
}
