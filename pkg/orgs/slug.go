package orgs

import "strings"

// SlugFallback is returned when a name yields no usable characters.
const SlugFallback = "org"

// Slugify derives a URL-safe, lowercase, hyphenated identifier from a
// human-readable organization name. Clients derive the same slug locally to
// find an organization they just created, so the rules here are load-bearing:
//
//  1. lowercase
//  2. rewrite "'s" to "s", spell out "&" as "and", spaces become hyphens
//  3. strip everything outside [a-z0-9-]
//  4. collapse hyphen runs
//  5. trim one leading and one trailing hyphen
//  6. fall back to "org" if nothing is left
//
// Possessives keep their s ("O'Brien's" becomes "obriens"); remaining
// apostrophes just disappear in step 3.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, "'s", "s")
	slug = strings.ReplaceAll(slug, "&", "and")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.TrimPrefix(slug, "-")
	slug = strings.TrimSuffix(slug, "-")
	if slug == "" {
		return SlugFallback
	}
	return slug
}
