package flags

// RootCmdFlags are the persistent flags of the kubescope command. The cluster
// flags share their names with scopeconfig keys, so scopeconfig.Load picks
// them up from the parsed flag set as well.
type RootCmdFlags struct {
	Debug      bool
	ConfigPath string
	KubeConfig string
	Context    string
	Namespace  string
}
