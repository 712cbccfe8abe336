package handler

// MatchesArchiveExtension reports whether name's extension is claimed by
// any registered archive-capable handler, without touching the filesystem
// (unlike GetHandler, which may consult a handler like DirectoryHandler
// that stats the path). This is the check entrycache uses to promote a
// File to Archive during finalization (spec §4.4 step 3a).
func (r *Registry) MatchesArchiveExtension(name string) Handler {
	for _, h := range r.Archivers() {
		if h.CanHandle(name) {
			return h
		}
	}
	return nil
}
