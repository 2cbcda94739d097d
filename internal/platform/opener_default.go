//go:build !linux && !darwin && !windows

package platform

func browserCommand(rawURL string) (string, []string) {
	return "xdg-open", []string{rawURL}
}
