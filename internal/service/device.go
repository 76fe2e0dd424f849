package service

import "regexp"

// Классы устройств, выводимые из user agent. Класс вычисляется при
// чтении и нигде не хранится: изменение правил ретроактивно применяется
// ко всей накопленной статистике.
const (
	DeviceIPhone       = "iPhone"
	DeviceIPad         = "iPad"
	DeviceAndroid      = "Android"
	DeviceTablet       = "Tablet"
	DeviceMobile       = "Mobile"
	DeviceWindowsPhone = "Windows Phone"
	DeviceMac          = "Mac"
	DeviceWindows      = "Windows"
	DeviceLinux        = "Linux"
	DeviceDesktop      = "Desktop"
	DeviceUnknown      = "Unknown"
)

var (
	reIPhone  = regexp.MustCompile(`(?i)iphone`)
	reIPad    = regexp.MustCompile(`(?i)ipad`)
	reAndroid = regexp.MustCompile(`(?i)android`)
	reMobi    = regexp.MustCompile(`(?i)mobile`)
	reTablet  = regexp.MustCompile(`(?i)tablet|playbook|silk`)
	// Общий мобильный паттерн чувствителен к регистру - так исторически
	// сложилась таблица классификации, и менять её задним числом нельзя
	reGenericMobile = regexp.MustCompile(`Mobile|iP(od)|BlackBerry|IEMobile|Kindle|Silk-Accelerated|(hpw|web)OS|Opera M(obi|ini)`)
	reWinPhone      = regexp.MustCompile(`(?i)windows phone`)
	reMac           = regexp.MustCompile(`(?i)macintosh|mac os x`)
	reWindows       = regexp.MustCompile(`(?i)windows|win32`)
	reLinux         = regexp.MustCompile(`(?i)linux`)
)

// DeviceFromUserAgent классифицирует user agent по фиксированной
// таблице приоритетов: платформенные правила строго раньше общих,
// поэтому iPad остаётся iPad'ом, хотя строка матчится и как mobile.
func DeviceFromUserAgent(ua string) string {
	if ua == "" {
		return DeviceUnknown
	}

	switch {
	case reIPhone.MatchString(ua):
		return DeviceIPhone
	case reIPad.MatchString(ua):
		return DeviceIPad
	case reAndroid.MatchString(ua):
		if reMobi.MatchString(ua) {
			return DeviceAndroid
		}
		return DeviceTablet
	case reTablet.MatchString(ua):
		return DeviceTablet
	case reGenericMobile.MatchString(ua):
		return DeviceMobile
	case reWinPhone.MatchString(ua):
		return DeviceWindowsPhone
	case reMac.MatchString(ua):
		return DeviceMac
	case reWindows.MatchString(ua):
		return DeviceWindows
	case reLinux.MatchString(ua):
		return DeviceLinux
	default:
		return DeviceDesktop
	}
}
