package domain

// Style は挿絵スタイルの閉じた選択肢です。
type Style string

const (
	StyleWatercolor Style = "Whimsical watercolor"
	Style2DDigital  Style = "2D digital illustration"
	StyleComic      Style = "Comic / graphic style"
	StyleModern3D   Style = "Modern 3D rendered"
)

// StyleInfo はスタイルごとの付随情報（参照タイルと文字描画サブスタイル）です。
type StyleInfo struct {
	// TileFile はキャラクターの雰囲気を伝える参照タイル画像のファイル名です。
	TileFile string
	// TextStyleKey は表紙・献辞ページの文字描画指示を引くためのキーです。
	TextStyleKey string
}

// styleCatalog がスタイルの正となる一覧です。ここに無いスタイルは受け付けません。
var styleCatalog = map[Style]StyleInfo{
	StyleWatercolor: {TileFile: "traditional_watercolor.png", TextStyleKey: "watercolor"},
	Style2DDigital:  {TileFile: "2D_digital.png", TextStyleKey: "2d-digital"},
	StyleComic:      {TileFile: "comic_graphic.png", TextStyleKey: "comic"},
	StyleModern3D:   {TileFile: "modern_3D_rendered.png", TextStyleKey: "3d"},
}

// Valid はスタイルが閉じた選択肢に含まれるかを返します。
func (s Style) Valid() bool {
	_, ok := styleCatalog[s]
	return ok
}

// Info はスタイルの付随情報を返します。未知のスタイルには水彩のものを返します。
func (s Style) Info() StyleInfo {
	if info, ok := styleCatalog[s]; ok {
		return info
	}
	return styleCatalog[StyleWatercolor]
}

// AllStyles は定義済みスタイルの一覧を返します（順序は固定）。
func AllStyles() []Style {
	return []Style{StyleWatercolor, Style2DDigital, StyleComic, StyleModern3D}
}
