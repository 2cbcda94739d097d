//go:build linux

package platform

func browserCommand(rawURL string) (string, []string) {
	return "xdg-open", []string{rawURL}
}
