package service

import "fmt"

// characterLevel maps an inclusive coin threshold to the character tier and
// its display asset.
type characterLevel struct {
	threshold float64
	level     int
	fileName  string
}

// Highest threshold wins. Levels 0 and 1 intentionally share the first asset;
// the art set starts at 1.svg.
var characterLevels = []characterLevel{
	{2000, 6, "6.svg"},
	{1500, 5, "5.svg"},
	{1200, 4, "4.svg"},
	{600, 3, "3.svg"},
	{300, 2, "2.svg"},
	{150, 1, "1.svg"},
	{0, 0, "1.svg"},
}

// ResolveCharacter maps a classroom coin balance to its discrete level and
// image URL. Pure and total: any non-negative balance resolves, and negative
// balances fall through to level 0.
func ResolveCharacter(coinCount float64) (int, string) {
	for _, cl := range characterLevels {
		if coinCount >= cl.threshold && cl.threshold > 0 {
			return cl.level, characterImagePath(cl.fileName)
		}
	}
	last := characterLevels[len(characterLevels)-1]
	return last.level, characterImagePath(last.fileName)
}

func characterImagePath(fileName string) string {
	return fmt.Sprintf("/static/images/%s", fileName)
}
