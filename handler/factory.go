package handler

// NewByName constructs a fresh, independent Handler instance of the named
// format ("zip", "rar", "sevenzip", "tar", "directory"). Callers that need
// to read from several archives of the same format concurrently (e.g.
// archivemgr.Manager.ExtractItem resolving sibling nested archives from
// worker-pool goroutines) MUST use a fresh instance per archive rather than
// share the registry's singleton, since a Handler's SetCurrentPath mutates
// shared state that only one archive's worth of reads should see at a time.
func NewByName(name string) (Handler, bool) {
	switch name {
	case "zip":
		return NewZipHandler(), true
	case "rar":
		return NewRarHandler(), true
	case "sevenzip":
		return NewSevenZipHandler(), true
	case "tar":
		return NewTarHandler(), true
	case "directory":
		return NewDirectoryHandler(), true
	default:
		return nil, false
	}
}
