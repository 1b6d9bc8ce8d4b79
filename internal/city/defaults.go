package city

// DefaultCities 默认名册。上海、武汉在贝壳上常年取不到总数，放在末尾作为未知组。
func DefaultCities() []City {
	return []City{
		{Key: "Beijing", Name: "北京", URL: "https://bj.ke.com/ershoufang/"},
		{Key: "Guangzhou", Name: "广州", URL: "https://gz.ke.com/ershoufang/"},
		{Key: "Suzhou", Name: "苏州", URL: "https://su.ke.com/ershoufang/"},
		{Key: "Hangzhou", Name: "杭州", URL: "https://hz.ke.com/ershoufang/"},
		{Key: "Nanjing", Name: "南京", URL: "https://nj.ke.com/ershoufang/"},
		{Key: "Xi_an", Name: "西安", URL: "https://xa.ke.com/ershoufang/"},
		{Key: "Chengdu", Name: "成都", URL: "https://cd.ke.com/ershoufang/"},
		{Key: "Chongqing", Name: "重庆", URL: "https://cq.ke.com/ershoufang/"},
		{Key: "Tianjin", Name: "天津", URL: "https://tj.ke.com/ershoufang/"},
		{Key: "Hefei", Name: "合肥"},
		{Key: "Fuzhou", Name: "福州"},
		{Key: "Xiamen", Name: "厦门"},
		{Key: "Changsha", Name: "长沙"},
		{Key: "Shenzhen", Name: "深圳"},
		{Key: "Shanghai", Name: "上海"},
		{Key: "Wuhan", Name: "武汉"},
	}
}

// DefaultRoster 由 DefaultCities 构建的名册
func DefaultRoster() *Roster {
	return MustRoster(DefaultCities())
}
