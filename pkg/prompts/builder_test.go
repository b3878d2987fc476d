package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

func TestAvatarFromPhoto(t *testing.T) {
	t.Run("特徴維持の指示が含まれること", func(t *testing.T) {
		got := AvatarFromPhoto(domain.StyleWatercolor)
		for _, want := range []string{"facial features", "hair color/style", "skin tone", "glasses"} {
			if !strings.Contains(got, want) {
				t.Errorf("%q が指示文に含まれていません", want)
			}
		}
		if !strings.Contains(got, string(domain.StyleWatercolor)) {
			t.Error("スタイル名が指示文に含まれていません")
		}
	})
}

func TestAvatarFromDescription(t *testing.T) {
	t.Run("説明文と解剖学の指示が含まれること", func(t *testing.T) {
		got := AvatarFromDescription("a brave girl with curly red hair", domain.StyleComic)
		if !strings.Contains(got, "curly red hair") {
			t.Error("説明文が指示文に含まれていません")
		}
		if !strings.Contains(got, "ANATOMICAL CORRECTNESS") {
			t.Error("解剖学の指示が含まれていません")
		}
	})
}

func TestPagePrompts(t *testing.T) {
	t.Run("アバター基準はソース画像の同一性を指示すること", func(t *testing.T) {
		got := PageFromAvatar("riding a bicycle in the park", domain.Style2DDigital)
		if !strings.Contains(got, "same main character as the provided source image") {
			t.Error("キャラクター同一性の指示が含まれていません")
		}
		if !strings.Contains(got, "riding a bicycle in the park") {
			t.Error("シーン記述が含まれていません")
		}
	})

	t.Run("前ページ基準は前ページへの言及を含むこと", func(t *testing.T) {
		got := PageFromPrevious("saying goodnight to the moon")
		if !strings.Contains(got, "previous page image") {
			t.Error("前ページへの言及が含まれていません")
		}
	})
}

func TestCover(t *testing.T) {
	t.Run("タイトル描画とはみ出し防止の指示が含まれること", func(t *testing.T) {
		got := Cover("Mia and the Moonlit Garden", domain.StyleModern3D)
		if !strings.Contains(got, `"Mia and the Moonlit Garden"`) {
			t.Error("タイトルが指示文に含まれていません")
		}
		if !strings.Contains(got, "fit entirely within the image boundaries") {
			t.Error("テキスト収まりのルールが含まれていません")
		}
		if !strings.Contains(got, "extruded lettering") {
			t.Error("3Dスタイルの文字指示が含まれていません")
		}
	})
}

func TestDedication(t *testing.T) {
	t.Run("献辞と固定の帰属表示が含まれること", func(t *testing.T) {
		got := Dedication("For Mia, with love", domain.StyleWatercolor)
		if !strings.Contains(got, `"For Mia, with love"`) {
			t.Error("献辞が指示文に含まれていません")
		}
		if !strings.Contains(got, "Created By Bright Kids AI") {
			t.Error("帰属表示が含まれていません")
		}
	})

	t.Run("献辞が空でも帰属表示は残ること", func(t *testing.T) {
		got := Dedication("", domain.StyleWatercolor)
		if !strings.Contains(got, "Created By Bright Kids AI") {
			t.Error("帰属表示が含まれていません")
		}
	})
}
