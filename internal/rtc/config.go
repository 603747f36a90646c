package rtc

type Config struct {
	NegotiationURL string
	ICEServers     []ICEServerConfig
	EventBuffer    int
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}
