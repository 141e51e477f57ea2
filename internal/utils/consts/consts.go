package consts

const (
	ServiceName = "cloudsession"
)
