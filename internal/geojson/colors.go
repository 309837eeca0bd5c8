package geojson

// colors：冷暖色带（蓝 → 红），索引为 round(归一化值*255)；共 257 项，末项不会被取到
var colors = [...]string{
	"#3B4CC0", "#3C4EC2", "#3D50C3", "#3E51C5", "#3F53C6", "#4055C8", "#4257C9", "#4358CB",
	"#445ACC", "#455CCE", "#465DCF", "#475FD1", "#4961D2", "#4A63D3", "#4B64D5", "#4C66D6",
	"#4D68D7", "#4F69D9", "#506BDA", "#516DDB", "#526EDD", "#5470DE", "#5572DF", "#5673E0",
	"#5775E1", "#5977E2", "#5A78E4", "#5B7AE5", "#5D7BE6", "#5E7DE7", "#5F7FE8", "#6080E9",
	"#6282EA", "#6383EB", "#6485EC", "#6687ED", "#6788EE", "#688AEF", "#6A8BEF", "#6B8DF0",
	"#6C8EF1", "#6E90F2", "#6F91F3", "#7093F3", "#7294F4", "#7396F5", "#7497F6", "#7699F6",
	"#779AF7", "#789CF7", "#7A9DF8", "#7B9EF9", "#7CA0F9", "#7EA1FA", "#7FA3FA", "#81A4FB",
	"#82A5FB", "#83A7FC", "#85A8FC", "#86A9FC", "#87ABFD", "#89ACFD", "#8AADFD", "#8CAEFE",
	"#8DB0FE", "#8EB1FE", "#90B2FE", "#91B3FE", "#93B5FF", "#94B6FF", "#95B7FF", "#97B8FF",
	"#98B9FF", "#99BAFF", "#9BBBFF", "#9CBCFF", "#9EBEFF", "#9FBFFF", "#A0C0FF", "#A2C1FF",
	"#A3C2FF", "#A4C3FE", "#A6C4FE", "#A7C5FE", "#A8C6FE", "#AAC7FD", "#ABC7FD", "#ACC8FD",
	"#AEC9FD", "#AFCAFC", "#B0CBFC", "#B2CCFB", "#B3CDFB", "#B4CDFB", "#B6CEFA", "#B7CFFA",
	"#B8D0F9", "#B9D0F8", "#BBD1F8", "#BCD2F7", "#BDD2F7", "#BED3F6", "#C0D4F5", "#C1D4F5",
	"#C2D5F4", "#C3D5F3", "#C5D6F3", "#C6D6F2", "#C7D7F1", "#C8D7F0", "#C9D8EF", "#CBD8EE",
	"#CCD9EE", "#CDD9ED", "#CED9EC", "#CFDAEB", "#D0DAEA", "#D1DBE9", "#D2DBE8", "#D3DBE7",
	"#D5DBE6", "#D6DCE5", "#D7DCE4", "#D8DCE3", "#D9DCE1", "#DADCE0", "#DBDCDF", "#DCDDDE",
	"#DDDDDD", "#DEDCDB", "#DFDCDA", "#E0DBD8", "#E1DBD7", "#E2DAD6", "#E3DAD4", "#E4D9D3",
	"#E5D8D1", "#E6D8D0", "#E7D7CE", "#E8D7CD", "#E8D6CB", "#E9D5CA", "#EAD4C8", "#EBD4C7",
	"#ECD3C5", "#ECD2C4", "#EDD1C2", "#EED1C1", "#EED0BF", "#EFCFBE", "#F0CEBC", "#F0CDBB",
	"#F1CCB9", "#F1CBB8", "#F2CAB6", "#F2C9B5", "#F3C8B3", "#F3C7B2", "#F4C6B0", "#F4C5AE",
	"#F5C4AD", "#F5C3AB", "#F5C2AA", "#F5C1A8", "#F6C0A7", "#F6BFA5", "#F6BEA3", "#F6BCA2",
	"#F7BBA0", "#F7BA9F", "#F7B99D", "#F7B89C", "#F7B69A", "#F7B598", "#F7B497", "#F7B295",
	"#F7B194", "#F7B092", "#F7AE91", "#F7AD8F", "#F7AC8D", "#F7AA8C", "#F7A98A", "#F7A789",
	"#F7A687", "#F6A486", "#F6A384", "#F6A183", "#F6A081", "#F59E7F", "#F59D7E", "#F59B7C",
	"#F49A7B", "#F49879", "#F49778", "#F39576", "#F39375", "#F29273", "#F29072", "#F18E70",
	"#F18D6F", "#F08B6D", "#F0896C", "#EF886A", "#EE8669", "#EE8467", "#ED8266", "#EC8164",
	"#EC7F63", "#EB7D61", "#EA7B60", "#E9795F", "#E9785D", "#E8765C", "#E7745A", "#E67259",
	"#E57058", "#E46E56", "#E36C55", "#E36A53", "#E26852", "#E16651", "#E0644F", "#DF624E",
	"#DE604D", "#DD5E4B", "#DC5C4A", "#DA5A49", "#D95847", "#D85646", "#D75445", "#D65243",
	"#D55042", "#D44E41", "#D24B40", "#D1493E", "#D0473D", "#CF453C", "#CD423B", "#CC4039",
	"#CB3E38", "#CA3B37", "#C83936", "#C73635", "#C63334", "#C43132", "#C32E31", "#C12B30",
	"#C0282F", "#BE252E", "#BD222D", "#BC1E2C", "#BA1A2B", "#B91629", "#B71128", "#B50B27",
	"#B40426",
}
