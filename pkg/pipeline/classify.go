package pipeline

import (
	"regexp"

	"github.com/nextmu/updateservice/pkg/domain"
)

// classifier pairs a category with the regex its relative path must match.
// The single capture group is the logical local_path clients place the file
// at, relative to the category root.
type classifier struct {
	category domain.Category
	pattern  *regexp.Regexp
}

// classifyOrder lists every category from highest index to lowest. Each
// category's root folder is its lowercase name (domain.Category.String())
// at the top of the archive — "general/a.png", "bc7/b.ktx",
// "windows/w.dll" — and matching proceeds from highest index down, first
// match wins, so texture/OS folders are claimed before the coarser
// desktop/mobile/general ones.
var classifyOrder = []domain.Category{
	domain.CategoryASTC,
	domain.CategoryETC2,
	domain.CategoryBC7,
	domain.CategoryBC3,
	domain.CategoryUncompressed,
	domain.CategoryIOS,
	domain.CategoryAndroid,
	domain.CategoryMacOS,
	domain.CategoryLinux,
	domain.CategoryWindows,
	domain.CategoryMobile,
	domain.CategoryDesktop,
	domain.CategoryGeneral,
}

var classifiers = buildClassifiers()

func buildClassifiers() []classifier {
	out := make([]classifier, len(classifyOrder))
	for i, cat := range classifyOrder {
		out[i] = classifier{
			category: cat,
			pattern:  regexp.MustCompile(`^` + regexp.QuoteMeta(cat.String()) + `/(.+)$`),
		}
	}
	return out
}

// classify matches relPath (forward-slash, archive-relative) against the
// ordered classifier table. The empty string and false are returned when no
// category claims the path — such files are dropped silently.
func classify(relPath string) (domain.Category, string, bool) {
	for _, c := range classifiers {
		if m := c.pattern.FindStringSubmatch(relPath); m != nil {
			return c.category, m[1], true
		}
	}
	return 0, "", false
}
