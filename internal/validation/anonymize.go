package validation

import (
	"regexp"
	"strings"
)

// Anonymized is stored in place of any address that matches neither
// the IPv4 nor the IPv6 pattern.
const Anonymized = "ANONYMIZED"

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

// AnonymizeIP rewrites an IP address so the original can never be recovered.
// IPv4 keeps the first two octets, IPv6 keeps the first three colon-groups;
// everything else becomes the Anonymized literal.
func AnonymizeIP(ip string) string {
	ip = strings.TrimSpace(ip)

	if m := ipv4Pattern.FindStringSubmatch(ip); m != nil {
		if validOctets(m[1:]) {
			return m[1] + "." + m[2] + ".XXX.XXX"
		}
		return Anonymized
	}

	if strings.Contains(ip, ":") {
		groups := strings.Split(ip, ":")
		if len(groups) >= 4 && validHexGroups(groups[:3]) {
			return strings.Join(groups[:3], ":") + ":XXXX:XXXX:XXXX:XXXX:XXXX"
		}
	}

	return Anonymized
}

func validOctets(octets []string) bool {
	for _, o := range octets {
		if len(o) > 1 && o[0] == '0' {
			return false
		}
		n := 0
		for _, r := range o {
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

func validHexGroups(groups []string) bool {
	for _, g := range groups {
		if g == "" || len(g) > 4 {
			return false
		}
		for _, r := range g {
			isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}
