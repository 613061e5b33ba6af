package version

var (
	Version   = "1.0.0" // 版本号 -- 发布时候更新版本号
	BuildTime string
	GitCommit string
	GoVersion string
)

func GetVersion() string {
	return Version
}
