// Package main TVNZ Video Generator API
//
//	@title			TVNZ Video Generator API
//	@version		1.0
//	@description	Uploads still images and relays image-to-video generation jobs to Runway.
//
//	@contact.name	TVNZ Digital
//
//	@license.name	Proprietary
//
//	@host			localhost:8000
//	@BasePath		/
//
//	@tag.name			Gateway
//	@tag.description	Image upload and generation task polling
package main
