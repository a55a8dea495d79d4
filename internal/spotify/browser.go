package spotify

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser opens the specified URL in the user's default browser.
func openBrowser(url string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		fmt.Println("Please open the following URL in your browser:", url)
		return
	}

	if err != nil {
		fmt.Println("Failed to open browser. Please open the following URL manually:", url)
	}
}
