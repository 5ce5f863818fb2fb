package tabstate

import (
	"strconv"
	"unicode/utf16"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/pkg/utils"
)

// hashPrefix is how much free text feeds the report fingerprint, in UTF-16 units.
const hashPrefix = 100

// ReportKey is the dedup key "<tabID>-<hash>" for a report on content.
// Content differing only past the truncated prefix maps to the same key.
func ReportKey(tabID int, scamType entity.ScamType, content *entity.ExtractedContent) string {
	basis := utf16.Encode([]rune(string(scamType)))
	if content != nil {
		switch {
		case scamType == entity.ScamEmail && content.Email != nil:
			basis = append(basis, utf16.Encode([]rune(content.Email.Subject))...)
			basis = append(basis, utils.PrefixUTF16(content.Email.Content, hashPrefix)...)
		case scamType == entity.ScamWebsite && content.Website != nil:
			basis = append(basis, utf16.Encode([]rune(content.Website.URL+content.Website.Title))...)
		case scamType == entity.ScamSocialMedia && content.Social != nil:
			basis = append(basis, utf16.Encode([]rune(content.Social.Username))...)
			basis = append(basis, utils.PrefixUTF16(content.Social.Caption, hashPrefix)...)
		}
	}
	return strconv.Itoa(tabID) + "-" + strconv.FormatInt(int64(utils.RollingHashUnits(basis)), 10)
}
