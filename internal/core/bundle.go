package core

type Target int

const (
	TargetServer Target = iota
	TargetClient
)

func (t Target) String() string {
	if t == TargetClient {
		return "client"
	}
	return "server"
}

// BundleRequest describes one bundler invocation. Server and client
// requests for a page share everything except Target and GlobalName.
type BundleRequest struct {
	Content    string
	EntryPath  string
	Target     Target
	GlobalName string
	External   []string
	Preamble   string
	Minify     bool
}

func BundlePair(content, entryPath string, external []string, preamble string, minify bool) (server BundleRequest, client BundleRequest) {
	server = BundleRequest{
		Content:   content,
		EntryPath: entryPath,
		Target:    TargetServer,
		External:  external,
		Preamble:  preamble,
		Minify:    minify,
	}
	client = server
	client.Target = TargetClient
	client.GlobalName = GlobalName
	return server, client
}
