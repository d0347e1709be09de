package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/GrainArc/GeoCAD/config"
	"github.com/GrainArc/GeoCAD/models"
	"github.com/GrainArc/GeoCAD/routers"
)

func main() {
	models.InitDB()
	r := gin.Default()
	routers.CadRouters(r)
	log.Printf("listening on %s", config.MainRouter)
	if err := r.Run(config.MainRouter); err != nil {
		log.Fatal(err)
	}
}
