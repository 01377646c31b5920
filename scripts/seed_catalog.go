// 手动导入目录结构脚本
//
// 初次部署时从 YAML 文件批量建立 学院 -> 专业 -> 课程单元 层级，
// 已存在的编码跳过,可以重复执行。
//
// 用法: go run scripts/seed_catalog.go [catalog.yaml]

package main

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"campus_share_backend/pkg/database"
	"log"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type seedCourseUnit struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Year     int    `yaml:"year"`
	Semester int    `yaml:"semester"`
}

type seedProgram struct {
	Name  string           `yaml:"name"`
	Code  string           `yaml:"code"`
	Units []seedCourseUnit `yaml:"course_units"`
}

type seedFaculty struct {
	Name     string        `yaml:"name"`
	Code     string        `yaml:"code"`
	Programs []seedProgram `yaml:"programs"`
}

type seedFile struct {
	Faculties []seedFaculty `yaml:"faculties"`
}

func main() {
	seedPath := "catalog.yaml"
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatalf("无法读取目录文件 %s: %v", seedPath, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("解析目录文件失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	created := 0
	for _, f := range seed.Faculties {
		faculty := model.Faculty{Name: f.Name, Code: f.Code}
		if err := upsertByCode(db, &faculty, "code = ?", f.Code); err != nil {
			log.Fatalf("学院 %s 写入失败: %v", f.Code, err)
		}

		for _, p := range f.Programs {
			program := model.Program{FacultyID: faculty.ID, Name: p.Name, Code: p.Code}
			if err := upsertByCode(db, &program, "code = ?", p.Code); err != nil {
				log.Fatalf("专业 %s 写入失败: %v", p.Code, err)
			}

			for _, u := range p.Units {
				unit := model.CourseUnit{
					ProgramID: program.ID,
					Name:      u.Name,
					Code:      u.Code,
					Year:      u.Year,
					Semester:  u.Semester,
				}
				if err := upsertByCode(db, &unit, "program_id = ? AND code = ?", program.ID, u.Code); err != nil {
					log.Fatalf("课程单元 %s 写入失败: %v", u.Code, err)
				}
				created++
			}
		}
	}

	log.Printf("目录导入完成，共处理 %d 个课程单元", created)
}

// upsertByCode 按编码查找，不存在则创建，存在时保留原记录
func upsertByCode(db *gorm.DB, dest interface{}, query string, args ...interface{}) error {
	return db.Where(query, args...).FirstOrCreate(dest).Error
}
