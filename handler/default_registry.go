package handler

// NewDefaultRegistry builds a Registry with every built-in handler
// registered in the order the Directory Normalizer / Handler Registry
// design expects: archive formats first (so an archive file is never
// mistaken for a plain file by a handler further down the list), Directory
// last since it only ever matches real directories.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewZipHandler())
	r.Register(NewRarHandler())
	r.Register(NewSevenZipHandler())
	r.Register(NewTarHandler())
	r.Register(NewDirectoryHandler())
	return r
}
