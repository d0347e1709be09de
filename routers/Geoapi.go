package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/GrainArc/GeoCAD/views"
)

func CadRouters(r *gin.Engine) {
	CadController := &views.CadController{}
	cadRouter := r.Group("/geocad")
	{
		cadRouter.GET("/DrawingList", CadController.DrawingList)
		cadRouter.GET("/DrawingDetail/:id", CadController.DrawingDetail)
		cadRouter.POST("/AddDrawing", CadController.AddDrawing)
		cadRouter.POST("/ChangeDrawing/:id", CadController.ChangeDrawing)
		cadRouter.GET("/DelDrawing/:id", CadController.DelDrawing)
		cadRouter.GET("/DrawingCSV/:id", CadController.DrawingCSV)
		cadRouter.GET("/DrawingPipesCSV/:id", CadController.DrawingPipesCSV)
		cadRouter.GET("/DownloadDrawingDXF/:id", CadController.DownloadDrawingDXF)
		cadRouter.GET("/ExportFlatDXF/:id", CadController.ExportFlatDXF)

		cadRouter.POST("/AddInsertion", CadController.AddInsertion)
		cadRouter.POST("/ChangeInsertion/:id", CadController.ChangeInsertion)
		cadRouter.GET("/DelInsertion/:id", CadController.DelInsertion)
	}
}
