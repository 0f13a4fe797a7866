package dto

type PluginInfo struct {
	Name         string
	Version      string
	Enabled      bool
	Binary       string
	Capabilities []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	ReportedVersion string
	Error           string
}

// Healthy reports whether every check that ran passed.
func (r DoctorResult) Healthy() bool {
	return r.Error == ""
}

type SendTextInput struct {
	PluginName string
	Phone      string
	Body       string
}

type SendTextOutput struct {
	PluginName string
	MessageID  string
	Detail     string
}
