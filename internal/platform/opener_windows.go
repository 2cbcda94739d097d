//go:build windows

package platform

func browserCommand(rawURL string) (string, []string) {
	return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}
}
