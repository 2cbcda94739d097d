//go:build darwin

package platform

func browserCommand(rawURL string) (string, []string) {
	return "open", []string{rawURL}
}
