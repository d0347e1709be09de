package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

var MainRouter string
var DSN string
var Download string
var Upload string
var LayerBlacklist []string
var BlockBlacklist []string
var MainConfig Config

type Config struct {
	XMLName        xml.Name `xml:"config"`
	MainRouter     string   `xml:"MainRouter"`
	Dbname         string   `xml:"dbname"`
	Host           string   `xml:"host"`
	Port           string   `xml:"port"`
	Username       string   `xml:"user"`
	Password       string   `xml:"password"`
	Upload         string   `xml:"upload"`
	Download       string   `xml:"download"`
	LayerBlacklist string   `xml:"LayerBlacklist"`
	BlockBlacklist string   `xml:"BlockBlacklist"`
}

func init() {

	xmlFile, err := os.Open("config.xml")
	if err != nil {
		fmt.Println("Error  opening  file:", err)
		setDefaults()
		return
	}
	defer xmlFile.Close()

	xmlDecoder := xml.NewDecoder(xmlFile)
	err = xmlDecoder.Decode(&MainConfig)
	if err != nil {
		fmt.Println("Error  decoding  XML:", err)
		setDefaults()
		return
	}
	MainRouter = MainConfig.MainRouter
	Upload = MainConfig.Upload
	Download = MainConfig.Download
	LayerBlacklist = splitList(MainConfig.LayerBlacklist)
	BlockBlacklist = splitList(MainConfig.BlockBlacklist)
	setDefaults()

	DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", MainConfig.Host, MainConfig.Username, MainConfig.Password, MainConfig.Dbname, MainConfig.Port)

}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setDefaults() {
	if Upload == "" {
		Upload = "uploads"
	}
	if Download == "" {
		Download = "OutFile"
	}
	if len(LayerBlacklist) == 0 {
		LayerBlacklist = []string{"Defpoints"}
	}
	if len(BlockBlacklist) == 0 {
		BlockBlacklist = []string{"*Model_Space", "*Paper_Space", "*Paper_Space0"}
	}
}
