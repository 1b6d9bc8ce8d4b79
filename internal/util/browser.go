package util

import (
	"os/exec"
	"runtime"
)

// browserCommand 各平台打开 URL 的默认命令
func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// fallbackBrowsers 默认命令失败后依次尝试的程序
func fallbackBrowsers(goos string) []string {
	switch goos {
	case "windows":
		return []string{"explorer"}
	case "linux":
		return []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
	}
	return nil
}

// OpenBrowser 用系统默认浏览器打开 url
func OpenBrowser(url string) error {
	return browserCommand(runtime.GOOS, url).Start()
}

// OpenBrowserWithFallback 默认方式失败时尝试常见浏览器
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}
	for _, browser := range fallbackBrowsers(runtime.GOOS) {
		if exec.Command(browser, url).Start() == nil {
			return nil
		}
	}
	return err
}
