package cipher

import "regexp"

var versionRegexp = regexp.MustCompile(`player[-_/]([a-zA-Z0-9\-_]+)`)

// VersionFromURL returns the script version id embedded in a player script
// URL, e.g. "abcd1234" for ".../s/player/abcd1234/player_ias.vflset/en_US/base.js".
func VersionFromURL(scriptURL string) (string, error) {
	m := versionRegexp.FindStringSubmatch(scriptURL)
	if len(m) < 2 {
		return "", NewError(ErrCodeVersionNotFound, "no version id in script URL", scriptURL)
	}
	return m[1], nil
}
