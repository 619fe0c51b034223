package discord

const (
	minSnowflakeLen = 17
	maxSnowflakeLen = 19
)

// IsValidSnowflake reports whether id looks like a Discord snowflake:
// 17 to 19 ASCII digits. The value is not parsed.
func IsValidSnowflake(id string) bool {
	if len(id) < minSnowflakeLen || len(id) > maxSnowflakeLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
