package domain

// AvatarSource はアバター画像の出自を表します。
type AvatarSource string

const (
	AvatarFromPhoto       AvatarSource = "reference-photo"
	AvatarFromDescription AvatarSource = "description"
	AvatarFromCover       AvatarSource = "cover-derived"
)

// Avatar は物語の主人公の外見を定める正準画像です。
// すべての伝搬ステップでソース画像として再利用されます。
type Avatar struct {
	Data   []byte       `json:"-"`
	Source AvatarSource `json:"source"`
	Style  Style        `json:"style"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
}

// GeneratedAsset は正規化済みの挿絵1枚をスロットに紐づけて保持します。
// 生成に失敗したステップは既存のアセットを一切変更しません。
type GeneratedAsset struct {
	Slot   Slot   `json:"slot"`
	Data   []byte `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Style  Style  `json:"style"`
}

// Size は画像生成プロバイダへ渡す出力サイズの指定です。
// 許可リスト外の指定は呼び出し前に正方形へ正規化します。
type Size string

const (
	SizeSquare    Size = "1024x1024"
	SizePortrait  Size = "1024x1536"
	SizeLandscape Size = "1536x1024"
	SizeAuto      Size = "auto"
)

// 正準キャンバスの寸法（縦長 2:3）
const (
	CanonicalWidth  = 1024
	CanonicalHeight = 1536
)

// ResolveSize は許可リストに照らしてサイズ指定を正規化します。
// "auto" と未知の指定はデフォルトの正方形に落とします。
func ResolveSize(requested string) Size {
	switch Size(requested) {
	case SizeSquare, SizePortrait, SizeLandscape:
		return Size(requested)
	}
	return SizeSquare
}

// Dimensions はサイズ指定をピクセル寸法に展開します。
func (s Size) Dimensions() (width, height int) {
	switch s {
	case SizePortrait:
		return 1024, 1536
	case SizeLandscape:
		return 1536, 1024
	default:
		return 1024, 1024
	}
}
