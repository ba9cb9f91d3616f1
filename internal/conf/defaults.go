// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "RetroView")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "retroview.log")
	viper.SetDefault("main.log.debug", false)

	viper.SetDefault("store.path", "retroview.sqlite")

	viper.SetDefault("import.chunksize", 50)
	viper.SetDefault("import.concurrency", 8)
	viper.SetDefault("import.extensions", []string{".json"})

	viper.SetDefault("imageservice.baseurl", "https://images.stereoview.example.org/index.php")
	viper.SetDefault("imageservice.timeoutseconds", 30)
	viper.SetDefault("imageservice.ratepersecond", 10.0)
	viper.SetDefault("imageservice.concurrency", 4)
	viper.SetDefault("imageservice.failurettlmin", 30)

	viper.SetDefault("cache.memorylimitbytes", 256*1024*1024)
	viper.SetDefault("cache.diskpath", "imagecache/")
	viper.SetDefault("cache.thumbnailsize", 256)
	viper.SetDefault("cache.concurrency", 4)

	viper.SetDefault("archive.stagingpath", "pending-import/")
}
