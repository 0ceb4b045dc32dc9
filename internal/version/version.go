package version

const (
	AppName     = "Spot Mirror"
	AppFullName = "Spot Mirror Discord Bot"
	Version     = "0.4.1"
)
