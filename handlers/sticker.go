package handlers

import (
	"github.com/gin-gonic/gin"

	"mingle/utils"
)

type Sticker struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var stickerCatalog = []Sticker{
	{Code: "😀", Name: "Grinning Face"},
	{Code: "😃", Name: "Grinning Face with Big Eyes"},
	{Code: "😄", Name: "Grinning Face with Smiling Eyes"},
	{Code: "😁", Name: "Beaming Face with Smiling Eyes"},
	{Code: "😆", Name: "Grinning Squinting Face"},
	{Code: "😅", Name: "Grinning Face with Sweat"},
	{Code: "🤣", Name: "Rolling on the Floor Laughing"},
	{Code: "😂", Name: "Face with Tears of Joy"},
	{Code: "🙂", Name: "Slightly Smiling Face"},
	{Code: "🙃", Name: "Upside-Down Face"},
	{Code: "😉", Name: "Winking Face"},
	{Code: "😊", Name: "Smiling Face with Smiling Eyes"},
	{Code: "😇", Name: "Smiling Face with Halo"},
	{Code: "🥰", Name: "Smiling Face with Hearts"},
	{Code: "😍", Name: "Smiling Face with Heart-Eyes"},
	{Code: "🤩", Name: "Star-Struck"},
	{Code: "😘", Name: "Face Blowing a Kiss"},
	{Code: "😗", Name: "Kissing Face"},
	{Code: "😚", Name: "Kissing Face with Closed Eyes"},
	{Code: "😙", Name: "Kissing Face with Smiling Eyes"},
}

func GetStickers(c *gin.Context) {
	utils.Success(c, stickerCatalog)
}
