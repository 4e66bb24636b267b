package formats

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/types"
	"github.com/ytget/ytdl/youtube/cipher"
	"github.com/ytget/ytdl/youtube/watch"
)

const (
	testScriptURL = "https://www.youtube.com/s/player/abc123/player_ias.vflset/en_US/base.js"
	testScript    = `var yt={};(function(g){var Xy={rv:function(a){a.reverse()},
sp:function(a,b){a.splice(0,b)},
sw:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
var decipher=function(a){a=a.split("");Xy.sp(a,2);Xy.rv(a,0);return a.join("")};g.decipher=decipher})(this);`
)

func testDecipherer(script string, calls *int) *cipher.Decipherer {
	return cipher.NewDecipherer(cipher.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		if calls != nil {
			*calls++
		}
		return script, nil
	}), nil)
}

func testPlayerResponse(t *testing.T) *watch.PlayerResponse {
	t.Helper()
	var pr watch.PlayerResponse
	raw := `{"streamingData":{
		"formats":[
			{"itag":18,"url":"https://r1.googlevideo.com/videoplayback?itag=18","mimeType":"video/mp4","qualityLabel":"360p","bitrate":500,"contentLength":"2048"},
			{"itag":22,"signatureCipher":"s=ABCDEF&sp=sig&url=https%3A%2F%2Fr1.googlevideo.com%2Fvideoplayback%3Fitag%3D22","mimeType":"video/mp4","qualityLabel":"720p"}
		],
		"adaptiveFormats":[
			{"itag":140,"cipher":"s=XYZW12&url=https%3A%2F%2Fr1.googlevideo.com%2Fvideoplayback%3Fitag%3D140","mimeType":"audio/mp4","quality":"tiny"},
			{"itag":999,"mimeType":"video/mp4"}
		]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &pr))
	return &pr
}

func TestParseFormats(t *testing.T) {
	list := ParseFormats(testPlayerResponse(t))
	require.Len(t, list, 3)

	assert.Equal(t, 18, list[0].Itag)
	assert.Equal(t, int64(2048), list[0].Size)
	assert.False(t, list[0].Ciphered())

	assert.Equal(t, 22, list[1].Itag)
	assert.True(t, list[1].Ciphered())
	assert.Equal(t, "720p", list[1].Quality)

	assert.Equal(t, 140, list[2].Itag)
	assert.True(t, list[2].Ciphered(), "legacy cipher field")
	assert.Equal(t, "tiny", list[2].Quality)
	assert.Equal(t, "m4a", list[2].Ext)

	assert.Nil(t, ParseFormats(nil))
}

func TestParseStreamMap(t *testing.T) {
	streamMap := strings.Join([]string{
		"itag=22&type=video%2Fmp4&quality=hd720&s=ABCDEF&url=https%3A%2F%2Fr2.googlevideo.com%2Fvideoplayback%3Fitag%3D22",
		"itag=18&type=video%2Fmp4&quality=medium&sig=PLAIN&url=https%3A%2F%2Fr2.googlevideo.com%2Fvideoplayback%3Fitag%3D18",
		"itag=43&type=video%2Fwebm&url=https%3A%2F%2Fr2.googlevideo.com%2Fvideoplayback%3Fitag%3D43",
		"itag=5&type=video%2Fx-flv",
	}, ",")

	list, err := ParseStreamMap(streamMap)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.True(t, list[0].Ciphered())
	assert.Contains(t, list[0].SignatureCipher, "s=ABCDEF")
	assert.Equal(t, "hd720", list[0].Quality)

	assert.Equal(t, "PLAIN", list[1].Signature)
	assert.Contains(t, list[1].URL, "signature=PLAIN")

	assert.Equal(t, "video/webm", list[2].MimeType)
	assert.Equal(t, "webm", list[2].Ext)
	assert.False(t, list[2].Ciphered())

	_, err = ParseStreamMap("itag=%zz")
	assert.Error(t, err)
}

func TestResolveURL(t *testing.T) {
	d := testDecipherer(testScript, nil)
	list := ParseFormats(testPlayerResponse(t))

	direct, err := ResolveURL(context.Background(), d, testScriptURL, list[0])
	require.NoError(t, err)
	assert.Equal(t, list[0], direct)

	resolved, err := ResolveURL(context.Background(), d, testScriptURL, list[1])
	require.NoError(t, err)
	assert.Equal(t, "FEDC", resolved.Signature)

	u, err := url.Parse(resolved.URL)
	require.NoError(t, err)
	assert.Equal(t, "FEDC", u.Query().Get("sig"))
	assert.Equal(t, "22", u.Query().Get("itag"))

	def, err := ResolveURL(context.Background(), d, testScriptURL, list[2])
	require.NoError(t, err)
	assert.Contains(t, def.URL, DefaultSignatureParam+"=21WZ")
}

func TestResolveURL_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := ResolveURL(ctx, testDecipherer(testScript, nil), testScriptURL, types.Format{Itag: 1, SignatureCipher: "sp=sig&url=https%3A%2F%2Fx"})
	assert.ErrorIs(t, err, errs.ErrCipherFailed)

	broken := testDecipherer("var nothing=1;", nil)
	_, err = ResolveURL(ctx, broken, testScriptURL, types.Format{Itag: 2, SignatureCipher: "s=AB&url=https%3A%2F%2Fx"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCipherFailed)
	assert.True(t, cipher.IsExtractionError(err))

	short := types.Format{Itag: 3, SignatureCipher: "s=A&url=https%3A%2F%2Fx"}
	_, err = ResolveURL(ctx, testDecipherer(testScript, nil), testScriptURL, short)
	assert.True(t, cipher.IsTransformError(err))
}

func TestResolveAll(t *testing.T) {
	calls := 0
	d := testDecipherer(testScript, &calls)
	list := ParseFormats(testPlayerResponse(t))
	list = append(list, types.Format{Itag: 4, SignatureCipher: "s=A&url=https%3A%2F%2Fx"})

	out, err := ResolveAll(context.Background(), d, testScriptURL, list)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, 1, calls)

	assert.Empty(t, out[1].Err)
	assert.Equal(t, "FEDC", out[1].Signature)
	assert.Empty(t, out[2].Err)
	assert.NotEmpty(t, out[3].Err, "too short for splice(2)")
	assert.Empty(t, out[3].URL)

	// input untouched
	assert.Empty(t, list[1].URL)
}

func TestResolveAll_ScriptFailure(t *testing.T) {
	d := cipher.NewDecipherer(cipher.FetcherFunc(func(ctx context.Context, url string) (string, error) {
		return "", errors.New("boom")
	}), nil)
	list := ParseFormats(testPlayerResponse(t))

	out, err := ResolveAll(context.Background(), d, testScriptURL, list)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCipherFailed)
	assert.True(t, cipher.IsFetchError(err))
	assert.Empty(t, out[0].Err)
	assert.NotEmpty(t, out[1].Err)
	assert.NotEmpty(t, out[2].Err)
}

func TestResolveAll_NothingCiphered(t *testing.T) {
	d := cipher.NewDecipherer(nil, nil)
	out, err := ResolveAll(context.Background(), d, "", []types.Format{{Itag: 18, URL: "u"}})
	require.NoError(t, err)
	assert.Equal(t, "u", out[0].URL)
}
